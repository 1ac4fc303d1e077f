// Package dapp holds the coffee page logic that sits between the UI and the
// chain: the supporter draft, submitting a payment and the memo feed.
package dapp

const (
	DefaultName    = "Anonymous"
	DefaultMessage = "Enjoy your coffee!"
)

// Draft is the in-progress submission. Empty fields fall back to the defaults.
type Draft struct {
	Name    string
	Message string
}

// Payload returns the name and message that will be sent on-chain.
func (d Draft) Payload() (name, message string) {
	name, message = d.Name, d.Message
	if name == "" {
		name = DefaultName
	}
	if message == "" {
		message = DefaultMessage
	}
	return name, message
}

// Reset clears both fields.
func (d *Draft) Reset() {
	d.Name = ""
	d.Message = ""
}
