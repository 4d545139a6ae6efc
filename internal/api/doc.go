// Package api serves lists and items over HTTP.
//
// REST routes read and mutate through the mutation service; every successful
// mutation also reaches live clients connected on /ws. Client errors
// (duplicate names, missing lists or items, malformed requests) answer 400,
// infrastructure failures answer 500, both with a JSON body:
//
//	{"error": "no such list (id: 7)", "kind": "no_such_list"}
//
// The REST routes sit behind optional HTTP basic auth and a request timeout.
// /ws is neither authenticated nor timed out: browsers cannot attach basic
// credentials to a websocket handshake, and the connection is long-lived.
package api
