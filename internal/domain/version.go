package domain

import "fmt"

// AppVersion is the deployment metadata row. Build is a monotonically
// increasing integer bumped on each deploy; Stamp is the ISO timestamp of
// the latest deployment.
type AppVersion struct {
	VersionKey string `json:"-" dynamodbav:"version_key"`
	Build      int    `json:"build" dynamodbav:"build"`
	Stamp      string `json:"stamp" dynamodbav:"stamp"`
}

// FormatBuild renders the build counter as a display version:
// 15 → "0.15", 99 → "0.99", 100 → "1.00", 101 → "1.01".
func FormatBuild(build int) string {
	if build < 1 {
		build = 1
	}
	return fmt.Sprintf("%d.%02d", build/100, build%100)
}
