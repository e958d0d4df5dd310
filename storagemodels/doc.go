/*
Package storagemodels defines the option and result types shared by the
datastore backends and the soft-delete layer.

Find options:

	docs, err := users.Find(ctx, filter.Conditions{"status": "active"},
	    storagemodels.WithSort("createdAt", false),
	    storagemodels.WithLimit(20),
	)

Update options and results:

	res, err := users.Update(ctx, args.Full(conds, patch,
	    &storagemodels.UpdateOptions{Multi: true}, nil))
	fmt.Println(res.Matched, res.Modified)

Streaming:

	for r := range users.Stream(ctx, conds,
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	) {
	    if r.Error != nil { ... }
	}

These types are deliberately backend neutral; each backend maps them onto its
own driver options.
*/
package storagemodels
