// Package activity models user-defined goals and the progress logged against them.
//
// An Activity is created with a Measurement describing what "done" means:
//
//   - binary: a single yes/no goal (unit None, target 1)
//   - quantifiable: a target amount in Minutes, Pages, Count or Kilometers
//
// Progress is logged as deltas. Quantifiable activities may regress from
// Completed back to Active when a correction brings current below target;
// binary completion is sticky.
//
// The package has no infrastructure dependencies. Persistence is reached
// through the Repository port.
package activity
