// Package logging wires log/slog with marquee's conventions: a compact
// console handler for interactive use, a JSON handler for machine-readable
// logs, component-tagged child loggers, and shorthand attribute constructors
// so call sites stay terse.
package logging
