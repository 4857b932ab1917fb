package utils

import (
	"fmt"
	"math/rand"
)

// Word lists for generated display aliases. Two short words keep aliases
// easy to shout across a table.
var aliasAdjectives = []string{
	"Brave", "Calm", "Clever", "Cosmic", "Crispy", "Daring", "Eager",
	"Fancy", "Gentle", "Golden", "Happy", "Hungry", "Jolly", "Lucky",
	"Mellow", "Mighty", "Nimble", "Quiet", "Rapid", "Salty", "Snappy",
	"Spicy", "Sunny", "Swift", "Toasty", "Witty", "Zesty",
}

var aliasNouns = []string{
	"Badger", "Bison", "Falcon", "Ferret", "Heron", "Lemur", "Lobster",
	"Lynx", "Magpie", "Marmot", "Mole", "Noodle", "Otter", "Owl",
	"Panda", "Pepper", "Pickle", "Puffin", "Rabbit", "Raven", "Sparrow",
	"Tiger", "Truffle", "Walrus", "Weasel", "Wombat", "Yak",
}

// RandomAlias returns a two-word display alias such as "Hungry Otter".
// Uniqueness within a session is the caller's job.
func RandomAlias() string {
	adj := aliasAdjectives[rand.Intn(len(aliasAdjectives))]
	noun := aliasNouns[rand.Intn(len(aliasNouns))]
	return fmt.Sprintf("%s %s", adj, noun)
}

// AliasSpace is the number of distinct aliases RandomAlias can produce.
func AliasSpace() int {
	return len(aliasAdjectives) * len(aliasNouns)
}
