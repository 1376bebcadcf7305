/*
Package log provides structured logging for all burrow components.

Built on zerolog. Init configures the global logger once at startup;
components take child loggers through the With helpers so every line
carries its component, server or task context.
*/
package log
