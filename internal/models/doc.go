// Package models defines the domain entities exchanged with the ComptaFlow backend.
//
// The package contains two categories of types:
//
// 1. Wire types mirroring backend responses:
//   - [User] : Account profile with subscription tier and usage block
//   - [UploadRecord] : One converted statement in the history list
//   - [UploadError] : Structured conversion failure returned with HTTP 200
//   - [Usage] : Monthly quota consumption for the current plan
//   - [DebugReport] : Diagnostic payload from the PDF debug endpoint
//
// 2. Client-side state:
//   - [Session] : Current identity (user + bearer token)
//   - [ErrorKind] : Closed enum over the backend's conversion error taxonomy
//   - [Eligibility] : Guest free-trial check result
package models
