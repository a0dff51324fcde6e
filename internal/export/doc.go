// Package export renders result collections for download or terminal output.
package export
