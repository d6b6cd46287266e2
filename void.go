package cascade

// Void is the result type of combinators that consume a value or run an
// action without producing one (thenAccept, thenRun, acceptEither,
// runAfterEither, runAfterBoth). There is exactly one Void value.
type Void struct{}

// unit is the sole Void value, returned wherever a combinator's
// computation has nothing meaningful to produce.
var unit = Void{}

// zeroOf returns the zero value of T, used wherever a failure path needs
// to hand a value alongside an error to code that always pairs the two.
func zeroOf[T any]() T {
	var z T
	return z
}
