package identify

// fieldPath is a chain of object keys into a decoded JSON document.
type fieldPath []string

// lookup follows one path; it fails on a missing key or a non-object hop.
func (p fieldPath) lookup(doc map[string]any) (any, bool) {
	var cur any = doc
	for _, key := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// firstString tries each path in order and returns the first non-empty string.
func firstString(doc map[string]any, paths ...fieldPath) string {
	for _, p := range paths {
		v, ok := p.lookup(doc)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

var (
	deviceNamePaths  = []fieldPath{{"device", "name"}, {"name"}}
	deviceModelPaths = []fieldPath{{"device", "modelName"}}
)
