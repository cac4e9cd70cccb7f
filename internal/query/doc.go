// Package query holds the pure read-side engines over a notification list:
// filtering, date-bucket grouping and statistics.
//
// None of the functions here mutate their input or keep state between
// calls. Functions that depend on "now" take it as an argument, and every
// calendar comparison uses now.Location().
package query
