package scan

import "regexp"

var typeDeclRe = regexp.MustCompile(`(?:^|[^\w$.])(@interface|class|interface|enum|record)\s+([A-Za-z_$][\w$]*)`)

// TypeDecl reports whether a masked code line declares a type, returning the
// keyword ("class", "interface", "enum", "record" or "@interface") and the
// declared name. Member references such as Foo.class are not declarations.
func TypeDecl(code string) (keyword, name string, ok bool) {
	m := typeDeclRe.FindStringSubmatch(code)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
