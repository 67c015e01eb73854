package ecs_test

import (
	"fmt"

	"github.com/mateusmp/bitengine/ecs"
)

type GameConfig struct {
	MaxPlayers int
	Difficulty string
}

type GameScore struct {
	Points int
	Level  int
}

// ExampleNewSingleton demonstrates creating and accessing singleton components.
// Singletons are global values not attached to any entity.
func ExampleNewSingleton() {
	es := ecs.NewEntitySystem(ecs.NewComponentRegistry())

	config := ecs.NewSingleton(es, GameConfig{
		MaxPlayers: 4,
		Difficulty: "Normal",
	})
	fmt.Printf("Config: %d players, %s difficulty\n", config.Get().MaxPlayers, config.Get().Difficulty)

	config.Get().Difficulty = "Hard"
	fmt.Printf("Updated difficulty: %s\n", config.Get().Difficulty)

	// the initializer is ignored once the singleton exists
	sameConfig := ecs.NewSingleton(es, GameConfig{Difficulty: "Easy"})
	fmt.Printf("Same config: %s difficulty\n", sameConfig.Get().Difficulty)

	// Output:
	// Config: 4 players, Normal difficulty
	// Updated difficulty: Hard
	// Same config: Hard difficulty
}

// ExampleSingleton_multipleReferences shows that accessors share the underlying value.
func ExampleSingleton_multipleReferences() {
	es := ecs.NewEntitySystem(ecs.NewComponentRegistry())

	score1 := ecs.NewSingleton(es, GameScore{Points: 0, Level: 1})
	score1.Get().Points = 100
	score1.Get().Level = 2

	score2 := ecs.NewSingleton[GameScore](es)
	fmt.Printf("Score2: %d points, Level %d\n", score2.Get().Points, score2.Get().Level)

	score2.Get().Points = 250
	fmt.Printf("Score1 after Score2 update: %d points\n", score1.Get().Points)

	var unbound ecs.Singleton[GameConfig]
	fmt.Println("Unbound exists:", unbound.Exists())

	// Output:
	// Score2: 100 points, Level 2
	// Score1 after Score2 update: 250 points
	// Unbound exists: false
}
