package ai

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"honeytrap-lab/internal/domain/models"
)

var (
	maleNames = []string{
		"Rajesh", "Amit", "Vikram", "Rahul", "Suresh", "Deepak",
		"Arun", "Sanjay", "Manoj", "Vijay", "Ramesh", "Ashok",
	}
	femaleNames = []string{
		"Priya", "Sunita", "Anjali", "Neha", "Kavita", "Pooja",
		"Meera", "Rekha", "Anita", "Lakshmi", "Geeta", "Shanti",
	}
	lastNames = []string{
		"Kumar", "Sharma", "Patel", "Singh", "Verma", "Gupta", "Reddy", "Yadav",
		"Joshi", "Agarwal", "Mehta", "Iyer", "Nair", "Das", "Chakraborty",
	}
	occupations = []string{
		"retired teacher", "small business owner", "farmer", "housewife",
		"government employee", "shopkeeper", "retired bank employee",
		"private job holder", "senior citizen", "homemaker",
	}
	banks = []string{
		"SBI", "HDFC Bank", "ICICI Bank", "Axis Bank", "Punjab National Bank",
		"Bank of Baroda", "Canara Bank", "Union Bank", "Indian Bank",
	}
	locations = []string{
		"Delhi", "Mumbai", "Bangalore", "Chennai", "Kolkata", "Hyderabad",
		"Pune", "Ahmedabad", "Jaipur", "Lucknow", "Patna", "Bhopal",
	}
	techSavvyLevels = []string{"low", "low", "medium"}
	emotionalStates = []string{"worried", "confused", "trusting"}
	typingStyles    = []string{"slow", "makes_typos", "formal"}
)

// GeneratePersona builds the synthetic victim identity for a session.
// Seeded by the session ID so the same session always gets the same
// persona, even across a restart.
func GeneratePersona(sessionID string) models.Persona {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	var first string
	if rng.Intn(2) == 0 {
		first = maleNames[rng.Intn(len(maleNames))]
	} else {
		first = femaleNames[rng.Intn(len(femaleNames))]
	}

	return models.Persona{
		Name:           fmt.Sprintf("%s %s", first, lastNames[rng.Intn(len(lastNames))]),
		Age:            45 + rng.Intn(26),
		Occupation:     occupations[rng.Intn(len(occupations))],
		Location:       locations[rng.Intn(len(locations))],
		Bank:           banks[rng.Intn(len(banks))],
		TechSavvy:      techSavvyLevels[rng.Intn(len(techSavvyLevels))],
		EmotionalState: emotionalStates[rng.Intn(len(emotionalStates))],
		TypingStyle:    typingStyles[rng.Intn(len(typingStyles))],
	}
}
