package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"contenthub/crypto"
	"contenthub/native/registry"
)

type submitContentParams struct {
	Caller      string `json:"caller"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Reward      string `json:"reward"`
}

type reviewContentParams struct {
	Caller string `json:"caller"`
	ID     string `json:"id"`
}

type contributorParams struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
}

type getContentParams struct {
	ID string `json:"id"`
}

type isContributorParams struct {
	Account string `json:"account"`
}

type setPauseParams struct {
	Paused bool `json:"paused"`
}

type balanceOfParams struct {
	Account string `json:"account"`
}

type contentResult struct {
	ID          string `json:"id"`
	Submitter   string `json:"submitter"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Reward      string `json:"reward"`
	Status      string `json:"status"`
	SubmittedAt int64  `json:"submittedAt"`
	ReviewedAt  int64  `json:"reviewedAt,omitempty"`
}

type boolResult struct {
	OK bool `json:"ok"`
}

type balanceResult struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

func contentResultFrom(record *registry.ContentRecord) *contentResult {
	if record == nil {
		return nil
	}
	reward := "0"
	if record.Reward != nil {
		reward = record.Reward.String()
	}
	return &contentResult{
		ID:          "0x" + hex.EncodeToString(record.ID[:]),
		Submitter:   crypto.NewAddress(crypto.HubPrefix, record.Submitter[:]).String(),
		Title:       record.Title,
		Description: record.Description,
		URL:         record.URL,
		Reward:      reward,
		Status:      record.Status.String(),
		SubmittedAt: record.SubmittedAt,
		ReviewedAt:  record.ReviewedAt,
	}
}

func parseAddr(field, rendered string) ([20]byte, *RPCError) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(rendered))
	if err != nil {
		return out, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s address: %v", field, err)}
	}
	return addr.Raw(), nil
}

func parseContentID(rendered string) ([32]byte, *RPCError) {
	var id [32]byte
	trimmed := strings.TrimSpace(rendered)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil || len(decoded) != 32 {
		return id, &RPCError{Code: codeInvalidParams, Message: "id must be a 32-byte hex string"}
	}
	copy(id[:], decoded)
	return id, nil
}

func parseReward(rendered string) (*big.Int, *RPCError) {
	trimmed := strings.TrimSpace(rendered)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, &RPCError{Code: codeInvalidParams, Message: "reward must be a base-10 integer"}
	}
	return value, nil
}

func (s *Server) handleSubmitContent(req *RPCRequest) (interface{}, *RPCError) {
	var params submitContentParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	reward, rpcErr := parseReward(params.Reward)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, err := s.node.SubmitContent(caller, params.Title, params.Description, params.URL, reward)
	if err != nil {
		return nil, errToRPC(err)
	}
	return contentResultFrom(record), nil
}

func (s *Server) handleApproveContent(req *RPCRequest) (interface{}, *RPCError) {
	var params reviewContentParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseContentID(params.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, err := s.node.ApproveContent(caller, id)
	if err != nil {
		return nil, errToRPC(err)
	}
	return contentResultFrom(record), nil
}

func (s *Server) handleRejectContent(req *RPCRequest) (interface{}, *RPCError) {
	var params reviewContentParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseContentID(params.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, err := s.node.RejectContent(caller, id)
	if err != nil {
		return nil, errToRPC(err)
	}
	return contentResultFrom(record), nil
}

func (s *Server) handleAddContributor(req *RPCRequest) (interface{}, *RPCError) {
	var params contributorParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddr("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.AddContributor(caller, account); err != nil {
		return nil, errToRPC(err)
	}
	return boolResult{OK: true}, nil
}

func (s *Server) handleRemoveContributor(req *RPCRequest) (interface{}, *RPCError) {
	var params contributorParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddr("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddr("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.RemoveContributor(caller, account); err != nil {
		return nil, errToRPC(err)
	}
	return boolResult{OK: true}, nil
}

func (s *Server) handleGetContent(req *RPCRequest) (interface{}, *RPCError) {
	var params getContentParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseContentID(params.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	record, err := s.node.GetContent(id)
	if err != nil {
		return nil, errToRPC(err)
	}
	return contentResultFrom(record), nil
}

func (s *Server) handleIsContributor(req *RPCRequest) (interface{}, *RPCError) {
	var params isContributorParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddr("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ok, err := s.node.IsContributor(account)
	if err != nil {
		return nil, errToRPC(err)
	}
	return boolResult{OK: ok}, nil
}

func (s *Server) handleSetPause(req *RPCRequest) (interface{}, *RPCError) {
	var params setPauseParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	if params.Paused {
		s.node.PauseRegistry()
	} else {
		s.node.ResumeRegistry()
	}
	return boolResult{OK: true}, nil
}

func (s *Server) handleBalanceOf(req *RPCRequest) (interface{}, *RPCError) {
	var params balanceOfParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddr("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.node.BalanceOf(account)
	if err != nil {
		return nil, errToRPC(err)
	}
	return balanceResult{Account: params.Account, Balance: balance.String()}, nil
}
