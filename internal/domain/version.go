package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"ngraph.dev/pkg/ngraph/internal/ctxlog"
)

// ManifestVersion is the manifest language version this parser implements.
const ManifestVersion = "1.8.2"

// RequiredVersionKey is the binding that declares a manifest's minimum version.
const RequiredVersionKey = "ninja_required_version"

// VersionChecker decides whether a manifest's required version can be parsed.
type VersionChecker interface {
	Check(ctx context.Context, required string) error
}

// VersionMismatchError reports a manifest that needs a newer parser.
type VersionMismatchError struct {
	Tool     string
	Required string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("ngraph version (%s) incompatible with build file %s version (%s)",
		e.Tool, RequiredVersionKey, e.Required)
}

type versionChecker struct {
	tool string
}

// NewVersionChecker returns a checker comparing against toolVersion.
func NewVersionChecker(toolVersion string) VersionChecker {
	return &versionChecker{tool: toolVersion}
}

func (c *versionChecker) Check(ctx context.Context, required string) error {
	tool := majorMinor(c.tool)
	file := majorMinor(required)

	if semver.Major(tool) != semver.Major(file) && semver.Compare(tool, file) > 0 {
		ctxlog.FromContext(ctx).Warn("tool version greater than build file required version; versions may be incompatible",
			"tool", c.tool, "required", required)

		return nil
	}

	if semver.Compare(tool, file) < 0 {
		return &VersionMismatchError{Tool: c.tool, Required: required}
	}

	return nil
}

// majorMinor reduces a version like "1.8.2.git" to the semver "v1.8".
// Missing or malformed numbers count as zero.
func majorMinor(version string) string {
	parts := strings.SplitN(version, ".", 3)

	major := leadingInt(parts[0])
	minor := 0

	if len(parts) > 1 {
		minor = leadingInt(parts[1])
	}

	return fmt.Sprintf("v%d.%d", major, minor)
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}

	return n
}
