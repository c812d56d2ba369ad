// Package httpwire implements the HTTP/1.1 request renderer and response
// reader, generalizing the teacher's internal/http10 package (HTTP/1.0
// request-only parsing) to full request+response codecs with chunked
// transfer, Content-Length, and Connection: keep-alive, per spec.md §4.8.
package httpwire
