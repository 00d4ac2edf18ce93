package game

import (
	"encoding/json"
	"fmt"
)

// Point is a grid cell. It marshals as the two-element array [x,y],
// which is what the browser client and bots expect.
type Point struct {
	X int
	Y int
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var arr [2]int
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("point must be a [x,y] array: %w", err)
	}
	p.X, p.Y = arr[0], arr[1]
	return nil
}
