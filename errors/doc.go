/*
Package errors provides semantic error types for softdelete and its backends.

The soft-delete layer itself only ever creates ArgumentShapeError. Every other
error type here is produced by the datastore backends, and the layer returns
those unchanged so callers can match them with errors.Is or the helpers.

Common Errors:

	var (
	    ErrNotFound        = errors.New("document not found")
	    ErrAlreadyExists   = errors.New("document already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrConditionFailed = errors.New("condition check failed")
	    ErrNoIndexMap      = errors.New("no index map found for collection")
	    ErrArgumentShape   = errors.New("unrecognized argument shape")
	)

Usage:

	doc, err := users.FindOne(ctx, filter.Conditions{"email": email})
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("user %s does not exist", email)
	    }
	    return nil, err
	}

	_, err = users.Update(ctx, args.Callback(done))
	if errors.IsArgumentShape(err) {
	    // conditions are required for updates
	}
*/
package errors
