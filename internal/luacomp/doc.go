// Package luacomp turns Lua scripts into catalog implementations.
//
// A script defines a global function `run(inputs)`. The inputs table holds
// the materialized arguments of one combination: scalars as Lua numbers,
// strings and booleans, composite arguments built by other scripts as
// nested tables, and array arguments as sequences. run returns the results
// of the combination:
//
//	function run(inputs)
//	  return { score = inputs.water * 2 }
//	end
//
// A table of fields records one data point, a sequence of such tables
// records one per element and nil records nothing. Returning nil plus a
// message, or raising an error, fails the combination.
//
// Scripts run in a fresh, sandboxed state per combination with only the
// base, table, string and math libraries. print is routed to the context
// logger and note(msg, key, value, ...) to the sweep's display.
package luacomp
