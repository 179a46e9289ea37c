package function

// Supplier represents a supplier of results
type Supplier[T any] func() T
