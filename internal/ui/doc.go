// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for statement conversion:
//  1. [LoginView] : Sign in or create an account
//  2. [GuestView] : One free-trial conversion without an account
//  3. [DashboardView] : Pick a statement and browse past conversions
//  4. [UploadingView] : Monitor the in-flight conversion
//  5. [ResultView] : Display the extraction summary
//  6. [ErrorView] : Explain a failed conversion and offer problem reporting
//
// The [Model] implements bubbletea's standard Init/Update/View pattern. Every
// backend call runs inside a [tea.Cmd] and comes back as a typed message; a
// session that expires mid-flight drops the user back on the login view.
package ui
