// Package console implements the administrative web console for the
// Do U Remember platform: session management over a pluggable storage
// backend, a route protection gate, the invitation-driven registration
// wizard, and the dashboard projections used to manage doctor and user
// accounts against the remote REST backend.
//
// The backend itself (user storage, invitation tokens, password hashing,
// email delivery) is a remote collaborator reached through the client
// package; nothing in this module persists domain records locally beyond
// the signed-in session blob.
package console
