package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	pb "chat-room/proto/chat"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Config struct {
	ServerAddr string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
}

func main() {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	conn, err := grpc.NewClient(config.ServerAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", config.ServerAddr, err)
	}
	defer conn.Close()

	client := pb.NewChatServiceClient(conn)
	stdin := bufio.NewScanner(os.Stdin)

	username := login(client, stdin)
	if username == "" {
		return
	}

	for {
		fmt.Println()
		fmt.Println("1. Recent messages (server streaming)")
		fmt.Println("2. Send a batch of messages (client streaming)")
		fmt.Println("3. Live chat (bidirectional streaming)")
		fmt.Println("4. Search history")
		fmt.Println("5. Quit")
		choice := prompt(stdin, "Choose an option: ")

		switch choice {
		case "1":
			recentMessages(client)
		case "2":
			sendBatch(client, stdin, username)
		case "3":
			liveChat(client, stdin, username)
		case "4":
			search(client, stdin)
		case "5":
			color.Gray.Println("Leaving the chat...")
			return
		default:
			color.Red.Println("Invalid option, try again.")
		}
	}
}

func login(client pb.ChatServiceClient, stdin *bufio.Scanner) string {
	for {
		username := prompt(stdin, "Enter a username: ")
		if username == "" {
			return ""
		}
		res, err := client.Login(context.Background(), &pb.LoginRequest{Username: username})
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		if res.Success {
			color.Green.Println(res.Message)
			return username
		}
		color.Red.Printf("Login rejected: %s\n", res.Message)
	}
}

func recentMessages(client pb.ChatServiceClient) {
	stream, err := client.GetRecentMessages(context.Background(), &pb.Empty{})
	if err != nil {
		color.Red.Printf("Request failed: %v\n", err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Username", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	count := 0
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			color.Red.Printf("Stream failed: %v\n", err)
			return
		}
		table.Append([]string{
			time.Unix(0, msg.Timestamp).Format(time.TimeOnly),
			msg.Username,
			msg.Message,
		})
		count++
	}
	if count == 0 {
		color.Gray.Println("No recent messages.")
		return
	}
	table.Render()
}

func sendBatch(client pb.ChatServiceClient, stdin *bufio.Scanner, username string) {
	stream, err := client.SendMultipleMessages(context.Background())
	if err != nil {
		color.Red.Printf("Request failed: %v\n", err)
		return
	}
	for {
		message := prompt(stdin, "Enter a message (or 'exit' to finish): ")
		if strings.EqualFold(message, "exit") {
			break
		}
		if err := stream.Send(&pb.MessageRequest{Username: username, Message: message}); err != nil {
			color.Red.Printf("Send failed: %v\n", err)
			return
		}
	}
	res, err := stream.CloseAndRecv()
	if err != nil {
		color.Red.Printf("Close failed: %v\n", err)
		return
	}
	color.Green.Printf("Server response: %s\n", res.Status)
}

func liveChat(client pb.ChatServiceClient, stdin *bufio.Scanner, username string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := client.ChatStream(ctx)
	if err != nil {
		color.Red.Printf("Request failed: %v\n", err)
		return
	}

	color.Cyan.Println("=== Live Chat === (type 'exit' to leave)")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			msg, err := stream.Recv()
			if err != nil {
				return
			}
			color.Cyan.Printf("%s: %s\n", msg.Username, msg.Message)
		}
	}()

	for {
		message := prompt(stdin, "")
		if err := stream.Send(&pb.MessageRequest{Username: username, Message: message}); err != nil {
			break
		}
		if strings.EqualFold(message, "exit") {
			break
		}
	}
	_ = stream.CloseSend()
	<-done
}

func search(client pb.ChatServiceClient, stdin *bufio.Scanner) {
	query := prompt(stdin, "Search for: ")
	if query == "" {
		return
	}
	res, err := client.SearchMessages(context.Background(), &pb.SearchRequest{Query: query, Limit: 20})
	if err != nil {
		color.Red.Printf("Search failed: %v\n", err)
		return
	}
	if len(res.Messages) == 0 {
		color.Gray.Println("No match.")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Username", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, msg := range res.Messages {
		table.Append([]string{
			time.Unix(0, msg.Timestamp).Format(time.DateTime),
			msg.Username,
			msg.Message,
		})
	}
	table.Render()
}

func prompt(stdin *bufio.Scanner, label string) string {
	if label != "" {
		fmt.Print(label)
	}
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}
