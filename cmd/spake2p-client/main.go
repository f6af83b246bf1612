// Command spake2p-client is an interactive shell for driving the PAKE
// service: setup, login and verify against a running spake2p-server.
//
// Usage:
//
//	spake2p-client [-server http://127.0.0.1:8443]
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

func main() {
	serverURL := flag.String("server", "http://127.0.0.1:8443", "base URL of the spake2p-server to talk to")
	flag.Parse()

	client := newAPIClient(*serverURL)

	rl, err := readline.New("spake2p> ")
	if err != nil {
		fmt.Println("error starting shell:", err)
		return
	}
	defer rl.Close()

	printHelp()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Println("error:", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "help", "?":
			printHelp()
		case "id":
			cmdID(client)
		case "setup":
			cmdSetup(rl, client, args)
		case "login":
			cmdLogin(rl, client, args)
		case "verify":
			cmdVerify(client, args)
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command %q, type 'help' for a list\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  id                    fetch the server's identifier
  setup <idc>           register a new client identity (prompts for password)
  login <idc>           run the key exchange (prompts for password), prints the derived key
  verify <idc> <key>    ask the server to confirm a previously derived key (hex)
  help                  show this message
  exit                  leave the shell`)
}

func cmdID(client *apiClient) {
	id, err := client.getServerID()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("server id:", id)
}

func cmdSetup(rl *readline.Instance, client *apiClient, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: setup <idc>")
		return
	}
	idc := args[0]

	serverID, err := client.getServerID()
	if err != nil {
		fmt.Println("error fetching server id:", err)
		return
	}

	password, err := readPassword(rl, "password: ")
	if err != nil {
		fmt.Println("error reading password:", err)
		return
	}

	fmt.Println("starting PAKE setup...")
	if err := client.performSetup(idc, serverID, password); err != nil {
		fmt.Println("setup failed:", err)
		return
	}
	fmt.Println("setup completed successfully")
}

func cmdLogin(rl *readline.Instance, client *apiClient, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: login <idc>")
		return
	}
	idc := args[0]

	serverID, err := client.getServerID()
	if err != nil {
		fmt.Println("error fetching server id:", err)
		return
	}

	password, err := readPassword(rl, "password: ")
	if err != nil {
		fmt.Println("error reading password:", err)
		return
	}

	key, err := client.performLogin(idc, serverID, password)
	if err != nil {
		fmt.Println("login failed:", err)
		return
	}
	fmt.Printf("login completed\nkey=%x\n", key)
}

func cmdVerify(client *apiClient, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: verify <idc> <key-hex>")
		return
	}
	idc, keyHex := args[0], args[1]

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil || len(keyBytes) != 32 {
		fmt.Println("error: key must be 64 hex characters")
		return
	}
	var key [32]byte
	copy(key[:], keyBytes)

	ok, err := client.performVerify(idc, key)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if ok {
		fmt.Println("verification successful")
	} else {
		fmt.Println("verification failed")
	}
}

func readPassword(rl *readline.Instance, prompt string) (string, error) {
	b, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
