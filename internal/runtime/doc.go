// Package runtime implements the action-tree interpreter.
package runtime
