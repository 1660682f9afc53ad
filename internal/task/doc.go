// Package task parses and validates task batches.
//
// A batch is a JSON array of task objects:
//
//	[
//	  {
//	    "title": "Write report",
//	    "due_date": "2024-01-01",
//	    "importance": 8,
//	    "estimated_hours": 2,
//	    "dependencies": [3]
//	  }
//	]
//
// After a round trip through the scoring service every object also carries
// "score" (number) and "explanation" (string).
//
// # Records
//
// A Record keeps the element exactly as it was received. Fields are
// interpreted on read, never rewritten:
//
//   - Text: strings as-is, numbers and booleans as their JSON literal
//   - Number: JSON numbers and numeric strings
//   - Date: "YYYY-MM-DD" or RFC 3339 timestamps
//
// Unknown fields (dependencies, ids, tags) survive the round trip untouched.
// An element that is not an object is still a Record; all its fields read as
// absent.
//
// # Validation
//
// Validate accepts any syntactically valid JSON whose top-level value is an
// array. The shape check is a JSON Schema; callers may add a schema file
// with stricter item rules through ValidationOptions.
package task
