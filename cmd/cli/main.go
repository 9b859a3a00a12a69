package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

type target struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IP   string `json:"ip"`
}

type logEntry struct {
	Time     time.Time `json:"timestamp"`
	Text     string    `json:"text"`
	Severity string    `json:"severity"`
}

const usage = `usage: cli <command>

  add [NAME IP]   add a target (prompts when arguments are missing)
  list            list targets
  rm ID           remove a target
  log [ID]        show the event log, optionally for one target`

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	api = strings.TrimRight(api, "/")

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println(usage)
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "add":
		err = add(api, args[1:])
	case "list", "ls":
		err = list(api)
	case "rm", "remove":
		if len(args) < 2 {
			err = fmt.Errorf("rm needs a target id")
			break
		}
		err = remove(api, args[1])
	case "log":
		id := ""
		if len(args) > 1 {
			id = args[1]
		}
		err = showLog(api, id)
	default:
		fmt.Println(usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func add(api string, args []string) error {
	var name, ip string
	if len(args) >= 2 {
		name, ip = args[0], args[1]
	} else {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Name (e.g., router): ")
		name, _ = reader.ReadString('\n')
		fmt.Print("IP or hostname (e.g., 192.168.1.1): ")
		ip, _ = reader.ReadString('\n')
	}
	name, ip = strings.TrimSpace(name), strings.TrimSpace(ip)
	if name == "" || ip == "" {
		return fmt.Errorf("name and ip are required")
	}

	body, _ := json.Marshal(map[string]string{"name": name, "ip": ip})
	resp, err := http.Post(api+"/api/targets", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	var t target
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return err
	}
	fmt.Printf("Added %s (%s) as %s\n", t.Name, t.IP, t.ID)
	return nil
}

func list(api string) error {
	var targets []target
	if err := getJSON(api+"/api/targets", &targets); err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Println("No targets.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tIP")
	for _, t := range targets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.IP)
	}
	return tw.Flush()
}

func remove(api, id string) error {
	req, err := http.NewRequest(http.MethodDelete, api+"/api/targets/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	fmt.Println("Removed", id)
	return nil
}

func showLog(api, id string) error {
	u := api + "/api/log"
	if id != "" {
		u += "?target=" + url.QueryEscape(id)
	}
	var entries []logEntry
	if err := getJSON(u, &entries); err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %-5s  %s\n", e.Time.Local().Format("15:04:05"), strings.ToUpper(e.Severity), e.Text)
	}
	return nil
}

func getJSON(u string, v any) error {
	resp, err := http.Get(u)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
}
