package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Manual smoke pass over the report lifecycle. Run against a local
// stack after `cmd/seed`.

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func step(name string) {
	color.Cyan("\n=== %s ===", name)
}

func check(resp *http.Response, body []byte, err error) map[string]interface{} {
	if err != nil {
		color.Red("request failed: %v", err)
		os.Exit(1)
	}
	var parsed map[string]interface{}
	_ = json.Unmarshal(body, &parsed)
	if resp.StatusCode >= 400 {
		color.Red("status %d", resp.StatusCode)
	} else {
		color.Green("status %d", resp.StatusCode)
	}
	prettyPrint(parsed)
	return parsed
}

func main() {
	step("Login")
	resp, body, err := sendRequest("POST", "/auth/v1/login", "", map[string]string{
		"email":    "supervisor@example.org",
		"password": "changeme-now",
	})
	parsed := check(resp, body, err)
	data, _ := parsed["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	if token == "" {
		color.Red("no token, aborting")
		os.Exit(1)
	}

	step("Create report")
	resp, body, err = sendRequest("POST", "/report/v1", token, map[string]string{})
	parsed = check(resp, body, err)
	data, _ = parsed["data"].(map[string]interface{})
	reportId, _ := data["id"].(string)

	step("Write patient details")
	resp, body, err = sendRequest("PUT", "/report/v1/"+reportId+"/section/patient-details", token, map[string]interface{}{
		"value": map[string]interface{}{
			"first_name": "Jan",
			"last_name":  "Kowalski",
			"age":        44,
		},
	})
	check(resp, body, err)

	step("Write invalid vital signs (expect 422)")
	resp, body, err = sendRequest("PUT", "/report/v1/"+reportId+"/section/vital-signs", token, map[string]interface{}{
		"value": map[string]interface{}{
			"heart_rate": -10,
		},
	})
	check(resp, body, err)

	step("List reports")
	resp, body, err = sendRequest("GET", "/report/v1", token, nil)
	check(resp, body, err)

	step("Resync pending")
	resp, body, err = sendRequest("POST", "/sync/v1/resync", token, nil)
	check(resp, body, err)

	color.Green("\nSmoke pass finished")
}
