package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gungnir/internal/common"
	gungnirNet "gungnir/internal/net"
)

func main() {
	// CLI parameter parsing
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the exchange server")
	owner := flag.String("owner", "", "Owner username (compulsory)")
	action := flag.String("action", "place", "Action to perform: ['place', 'modify', 'cancel', 'log']")

	// Order parameters
	id := flag.Uint64("id", 1, "Order id (caller-assigned, must be unique)")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit', 'market', 'ioc' or 'fok'")
	price := flag.Float64("price", 100.0, "Limit price")
	volStr := flag.String("vol", "10", "Volume or comma-separated list (e.g. 10,20,50)")

	flag.Parse()

	if *owner == "" {
		fmt.Println("Error: -owner is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s as '%s'\n", *serverAddr, *owner)

	// Start listening for reports (async).
	go readReports(conn)

	side := common.Buy
	if strings.ToLower(*sideStr) == "sell" {
		side = common.Sell
	}

	orderType := common.GoodTillCancel
	switch strings.ToLower(*typeStr) {
	case "market":
		orderType = common.Market
	case "ioc":
		orderType = common.ImmediateOrCancel
	case "fok":
		orderType = common.FillOrKill
	}

	switch strings.ToLower(*action) {
	case "place":
		orderID := *id
		for _, vol := range parseVolumes(*volStr) {
			err := sendPlaceOrder(conn, *owner, orderType, orderID, *price, vol, side)
			if err != nil {
				log.Printf("Failed to place order (Vol: %f): %v", vol, err)
			} else {
				fmt.Printf("-> Sent %s order id=%d: %f @ %.2f\n",
					strings.ToUpper(*sideStr), orderID, vol, *price)
			}
			orderID++
			// Small sleep so the server processes the sequence distinctly.
			time.Sleep(5 * time.Millisecond)
		}

	case "modify":
		vols := parseVolumes(*volStr)
		if len(vols) != 1 {
			log.Fatal("Error: -vol must be a single value for modify")
		}
		if err := sendModifyOrder(conn, *id, *price, vols[0]); err != nil {
			log.Printf("Failed to send modify request: %v", err)
		} else {
			fmt.Printf("-> Sent modify request for id=%d: %f @ %.2f\n", *id, vols[0], *price)
		}

	case "cancel":
		if err := sendCancelOrder(conn, *id); err != nil {
			log.Printf("Failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> Sent cancel request for id=%d\n", *id)
		}

	case "log":
		if err := sendLog(conn); err != nil {
			log.Printf("Failed to send log request: %v", err)
		} else {
			fmt.Println("-> Sent log request")
		}

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	// Keep the client alive to receive execution reports.
	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

// parseVolumes splits a comma-separated string into a slice of float64.
func parseVolumes(input string) []float64 {
	parts := strings.Split(input, ",")
	var result []float64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseFloat(p, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("Warning: invalid volume '%s', skipping.", p)
		}
	}
	return result
}

// sendPlaceOrder constructs and sends the NewOrder message.
func sendPlaceOrder(conn net.Conn, owner string, orderType common.OrderType, id uint64, price, vol float64, side common.Side) error {
	totalLen := gungnirNet.BaseMessageHeaderLen + gungnirNet.NewOrderMessageHeaderLen + len(owner)
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(gungnirNet.NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(orderType))
	binary.BigEndian.PutUint64(buf[4:12], id)
	binary.BigEndian.PutUint64(buf[12:20], math.Float64bits(price))
	binary.BigEndian.PutUint64(buf[20:28], math.Float64bits(vol))
	buf[28] = byte(side)
	buf[29] = uint8(len(owner))
	copy(buf[30:], owner)

	_, err := conn.Write(buf)
	return err
}

// sendModifyOrder constructs and sends the ModifyOrder message.
func sendModifyOrder(conn net.Conn, id uint64, newPrice, newVol float64) error {
	buf := make([]byte, gungnirNet.BaseMessageHeaderLen+gungnirNet.ModifyOrderMessageHeaderLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(gungnirNet.ModifyOrder))
	binary.BigEndian.PutUint64(buf[2:10], id)
	binary.BigEndian.PutUint64(buf[10:18], math.Float64bits(newPrice))
	binary.BigEndian.PutUint64(buf[18:26], math.Float64bits(newVol))

	_, err := conn.Write(buf)
	return err
}

// sendCancelOrder constructs and sends the CancelOrder message.
func sendCancelOrder(conn net.Conn, id uint64) error {
	buf := make([]byte, gungnirNet.BaseMessageHeaderLen+gungnirNet.CancelOrderMessageHeaderLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(gungnirNet.CancelOrder))
	binary.BigEndian.PutUint64(buf[2:10], id)

	_, err := conn.Write(buf)
	return err
}

func sendLog(conn net.Conn) error {
	buf := make([]byte, gungnirNet.BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(gungnirNet.LogBook))
	_, err := conn.Write(buf)
	return err
}

// readReports continuously reads and parses Report messages from the server.
func readReports(conn net.Conn) {
	for {
		headerBuf := make([]byte, gungnirNet.ReportFixedHeaderLen)
		if _, err := io.ReadFull(conn, headerBuf); err != nil {
			if err != io.EOF {
				log.Printf("Connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := gungnirNet.ReportMessageType(headerBuf[0])
		outcome := common.Outcome(headerBuf[1])
		success := headerBuf[2] == 1
		side := common.Side(headerBuf[3])
		orderID := binary.BigEndian.Uint64(headerBuf[12:20])
		vol := math.Float64frombits(binary.BigEndian.Uint64(headerBuf[20:28]))
		price := math.Float64frombits(binary.BigEndian.Uint64(headerBuf[28:36]))
		counterpartyLen := binary.BigEndian.Uint16(headerBuf[36:38])
		errStrLen := binary.BigEndian.Uint32(headerBuf[38:42])

		totalVarLen := int(counterpartyLen) + int(errStrLen)
		varBuf := make([]byte, totalVarLen)
		if totalVarLen > 0 {
			if _, err := io.ReadFull(conn, varBuf); err != nil {
				log.Printf("Error reading report body: %v", err)
				break
			}
		}
		errStr := string(varBuf[:errStrLen])
		counterparty := string(varBuf[errStrLen:])

		switch msgType {
		case gungnirNet.ErrorReport:
			fmt.Printf("\n[SERVER ERROR] %s\n", errStr)
		case gungnirNet.OutcomeReport:
			fmt.Printf("\n[OUTCOME] id=%d %s %f @ %.2f -> %v\n",
				orderID, strings.ToUpper(side.String()), vol, price, outcome)
		case gungnirNet.CancelReport:
			fmt.Printf("\n[CANCEL] id=%d ok=%v\n", orderID, success)
		case gungnirNet.ModifyReport:
			fmt.Printf("\n[MODIFY] id=%d ok=%v\n", orderID, success)
		case gungnirNet.ExecutionReport:
			fmt.Printf("\n[EXECUTION] id=%d %s | Vol: %f | Price: %.2f | vs: %s\n",
				orderID, strings.ToUpper(side.String()), vol, price, counterparty)
		}
	}
}
