package spec

// Merge deep-merges override on top of base and returns a new map. Nested
// maps are merged recursively, any other override value replaces the base
// value. Arrays are replaced, not concatenated. Neither input is modified.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		src, srcIsMap := v.(map[string]any)
		dst, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = Merge(dst, src)
			continue
		}
		out[k] = v
	}
	return out
}
