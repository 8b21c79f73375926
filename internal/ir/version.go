package ir

// RuntimeVersion is the gifboard host runtime version reported by the CLI.
const RuntimeVersion = "0.1.0"
