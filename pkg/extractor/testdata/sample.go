package sample

// Greeter produces greetings for a named audience.
type Greeter struct {
	Prefix string
}

// Greet returns a greeting for name.
func (g *Greeter) Greet(name string) string {
	return g.Prefix + ", " + name + buildSuffix()
}

func buildSuffix() string {
	return "!"
}

const defaultPrefix = "Hello"
