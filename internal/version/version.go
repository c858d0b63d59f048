package version

// Version is stamped at release time; the default marks dev builds.
var Version = "0.0.0-dev"
