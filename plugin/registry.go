package plugin

import "fmt"

// Transformers is a global map of ValueTransformer plugins.
var Transformers = map[string]func() ValueTransformer{
	"duration": func() ValueTransformer {
		return &DurationPlugin{}
	},
	"weekday": func() ValueTransformer {
		return &WeekdayPlugin{}
	},
}

func TransformerLookup(name string) (ValueTransformer, error) {
	factory, ok := Transformers[name]
	if !ok {
		return nil, fmt.Errorf("unknown transformer: %s", name)
	}
	return factory(), nil
}
