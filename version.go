package packard

// Version is the Packard release the CLI reports.
const Version = "0.2.0"

// BuildDate is stamped by the release build; "dev" otherwise.
var BuildDate = "dev"
