// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[dispatch.Dispatcher]()
//	reg.Register("lp", func(conf map[string]any) (dispatch.Dispatcher, error) {
//	    var c struct{ Tolerance float64 `json:"tolerance"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return &dispatch.LPDispatcher{Tolerance: c.Tolerance}, nil
//	})
//	d, err := reg.Create(factory.ModuleConfig{Type: "lp", Conf: map[string]any{"tolerance": 1e-6}})
package factory
