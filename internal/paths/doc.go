// Package paths provides platform-appropriate default paths for toolforge.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows, with "toolforge" as the subdirectory under each base
// path.
package paths
