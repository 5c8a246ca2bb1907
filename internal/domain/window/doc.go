// Package window implements the window controller.
//
// One Manager owns all window instances. Lifecycle actions publish
// application events consumed by the desktop shell; focus flags are
// updated reactively from the shell's focus broadcast. Body content is
// composed in by window kind, not inherited.
package window
