// Package discovery finds registration APIs on the local network via
// DNS-SD and feeds them, priority-ordered, to the registration driver.
//
// Two service families are browsed: the current _nmos-register._tcp type
// and the legacy _nmos-registration._tcp type used by older registries.
// Both feed the same candidate stream; the same physical registry announced
// under both families is not de-duplicated. The node also advertises itself
// as _nmos-node._tcp.
//
// A browse result becomes a candidate only if its TXT record carries all of
// api_proto, api_ver, api_auth and pri. Records missing a key or carrying
// an unparsable value are logged and dropped.
package discovery
