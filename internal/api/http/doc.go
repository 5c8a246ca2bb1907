// Package http exposes the desktop control API consumed by the shell:
// window lifecycle, drag sessions, dropdown state, and chat session
// forms.
package http
