// Package httpclient implements the HTTP client task of spec.md §4.10:
// the SendRequestState machine, the GetHttpRequestRedirectTask redirect
// loop, and the ClientRequest user-facing façade
// (introduction/body/send/parts/collect). It is built on netstream
// (transport), connpool (connection reuse), httpwire (the wire codec),
// and exec/task/rx (the cooperative scheduling the redirect loop runs
// under).
package httpclient
