/*
Package policy decides which files may be deleted and in what order.

Protection is applied first: files younger than a configured duration, and
the N most recently modified database files, are exempt from deletion no
matter what the size budget demands. Everything else gets a scalar weight
under one of three orders (newer, smaller, smaller_newer). All three orders
share one sign convention: higher weight is deleted earlier.

The order set is closed and enumerable, so dispatch is a switch on Order
rather than open-ended plugins.
*/
package policy
