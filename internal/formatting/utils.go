package formatting

import (
	"encoding/json"
	"fmt"
)

// PrettyJSON formats v as JSON indented by two spaces. Values that cannot be
// marshaled fall back to their %v representation.
//
// Example:
//
//	fmt.Println(formatting.PrettyJSON(map[string]int{"Thread-Count": 16}))
//	// Output:
//	// {
//	//   "Thread-Count": 16
//	// }
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
