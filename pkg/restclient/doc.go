// Package restclient calls a tabula API over HTTP.
//
// Paths are the route paths as declared, with ":name" parameters filled
// from [Payload.PathParams] and [Payload.Query] appended as the query
// string. Responses are decoded as JSON whatever their status.
//
//	c := restclient.New("https://erp.example.com")
//	resp, err := c.GET(ctx, "/api/posts/:id", restclient.Payload{
//		PathParams: map[string]string{"id": "42"},
//	})
//	var post map[string]any
//	err = resp.Decode(&post)
package restclient
