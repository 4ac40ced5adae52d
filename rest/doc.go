// Package rest turns declaratively described REST operations into executable
// network calls. An Interface lists Operations with their verb, URL template,
// parameter bindings, expected status codes, error mapping, and return
// shape; NewProxy parses the description once into immutable method plans,
// and Invoke consumes a plan on every call to build a request, drive it
// through a pipeline, and reshape the response into a typed result.
//
// # Quick Start
//
//	iface := rest.Interface{
//	    Name:   "ItemService",
//	    Host:   "api.example.com",
//	    Scheme: "https",
//	    Operations: []rest.Operation{{
//	        Name:           "GetItem",
//	        Method:         http.MethodGet,
//	        Path:           "/items/{id}",
//	        Params:         []rest.Param{rest.PathParam("id")},
//	        ExpectedStatus: []int{200},
//	        Returns:        rest.ReturnsBody(func() any { return &Item{} }),
//	    }},
//	}
//
//	proxy, err := rest.NewProxy(iface, pipe, serde.NewSerializer())
//	if err != nil {
//	    return err
//	}
//
//	result, err := proxy.Invoke(ctx, "GetItem", "abc")
//	item := result.(*Item)
//
// Parsing validates the description up front; an inconsistent description
// fails client construction with a *DescriptionError and publishes no
// partial plans. At call time, an unexpected status surfaces as the
// operation's registered error type, or as *UnexpectedStatusError when no
// constructor is registered.
package rest
