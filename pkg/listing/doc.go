// Package listing combines the result cache, the filter pipeline and the
// pagination controller into the read model a directory browser renders.
//
// An Orchestrator owns its cache. Every cache transition, filter change or
// page change recomputes the View eagerly and hands it to subscribers in
// order:
//
//	o := listing.New(apiClient.FetchEntities, listing.DefaultConfig())
//	defer o.Close()
//
//	o.Subscribe(func(v listing.View) {
//		fmt.Printf("%s: page %d/%d\n", v.Status, v.EffectivePage, v.TotalPages)
//	})
//	<-o.Load()
//	o.SetRole("admin")
//	o.NextPage()
//
// Changing the search term or the role always returns to page 1.
package listing
