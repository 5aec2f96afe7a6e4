// Package loader reads schema documents written in CUE or YAML and builds
// the schema graph the rewrite pipeline consumes.
//
// Both formats share one document structure (see Document). Loading
// collects every problem instead of stopping at the first, and reports
// input the graph cannot represent (derived relationships, derivation
// rules, constraints over derived relationships) in Result.Dropped.
//
// Error codes:
//
//	E002  unsupported file extension
//	E004  file could not be read
//	E005  file not found
//	E006  CUE evaluation failed
//	E007  decoding failed (syntax, unknown field, wrong type)
//	E010  required field missing
//	E011  name declared twice
//	E012  object type reference does not resolve
//	E013  role or relationship reference does not resolve
//	E014  unknown object type or constraint kind
//	E015  invalid value, range or bound
//	E016  malformed join path
//	E017  invalid objectification
package loader
