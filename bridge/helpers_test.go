package bridge

import "encoding/json"

func jsonOf(v any) (string, error) {
	data, err := json.Marshal(v)
	return string(data), err
}
