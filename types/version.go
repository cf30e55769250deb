package types

// Version is the canonical project version.
// The CLI, the IPC message frame and the Lode record layout share this version.
const Version = "0.1.0"

// FrameVersion is the version stamped on IPC message frames and Lode records.
// Kept in lockstep with Version.
const FrameVersion = Version
