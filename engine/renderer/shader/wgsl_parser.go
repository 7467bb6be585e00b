package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// wgslVertexSizes maps WGSL vertex attribute types to their size in bytes.
var wgslVertexSizes = map[string]uint64{
	"f32":       4,
	"vec2f":     8,
	"vec2<f32>": 8,
	"vec3f":     12,
	"vec3<f32>": 12,
	"vec4f":     16,
	"vec4<f32>": 16,
	"u32":       4,
	"vec2u":     8,
	"vec2<u32>": 8,
	"vec4u":     16,
	"vec4<u32>": 16,
	"i32":       4,
	"vec4i":     16,
	"vec4<i32>": 16,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// fieldRegex matches a struct field: optional attributes, name, colon, type
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// parseEntryPoint returns the name of the first function carrying the given stage attribute, or "".
func parseEntryPoint(source string, re *regexp.Regexp) string {
	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// parseVertexStride sums the @location fields of the named struct. A missing struct has stride 0.
//
// Parameters:
//   - source: the processed WGSL source
//   - structName: the vertex input struct, usually "VertexInput"
//
// Returns:
//   - uint64: the tightly packed vertex size in bytes
//   - error: an error if a location field has a type that cannot be a vertex attribute
func parseVertexStride(source, structName string) (uint64, error) {
	for _, m := range structBlockRegex.FindAllStringSubmatch(stripComments(source), -1) {
		if m[1] != structName {
			continue
		}
		var stride uint64
		for _, raw := range strings.Split(m[2], ",") {
			field := strings.TrimSpace(raw)
			if field == "" || !locationRegex.MatchString(field) {
				continue
			}
			fm := fieldRegex.FindStringSubmatch(field)
			if fm == nil {
				continue
			}
			typ := strings.TrimSpace(fm[2])
			size, ok := wgslVertexSizes[typ]
			if !ok {
				return 0, fmt.Errorf("struct %s field %s: unsupported vertex attribute type %q", structName, fm[1], typ)
			}
			stride += size
		}
		return stride, nil
	}
	return 0, nil
}

// stripComments removes block and line comments so they do not interfere with parsing.
func stripComments(source string) string {
	source = blockCommentRegex.ReplaceAllString(source, "")
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
