// Package refdata caches supplier and model reference data locally so that
// captures can be admitted while offline. Names are matched on a normalized
// key per organization; unknown names get a locally generated id immediately
// and are pushed to the remote catalog opportunistically.
package refdata
