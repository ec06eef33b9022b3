// Package version holds the release version stamped into outbound requests.
package version

// Current is the release version, without a leading "v".
const Current = "0.1.0"

// UserAgent identifies this tool to upstream APIs.
func UserAgent() string {
	return "card-catalog-pipeline/" + Current
}
