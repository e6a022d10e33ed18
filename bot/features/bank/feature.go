package bank

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"justbot/bot/common"
	"justbot/service"
)

// Feature handles the bank commands: account opening, deposits, withdrawals,
// transfers, loans and transaction history.
type Feature struct {
	accountService service.AccountService
	loanService    service.LoanService
	configService  service.GuildConfigService
}

func New(accountService service.AccountService, loanService service.LoanService, configService service.GuildConfigService) *Feature {
	return &Feature{
		accountService: accountService,
		loanService:    loanService,
		configService:  configService,
	}
}

// InBankChannel reports whether the channel may run bank commands. Guilds
// without a bank channel binding allow them everywhere.
func (f *Feature) InBankChannel(ctx context.Context, guildID int64, channelID string) (bool, string, error) {
	config, err := f.configService.GetConfig(ctx, guildID)
	if err != nil {
		return false, "", err
	}
	if config.BankChannelID == nil || channelID == common.FormatUserID(*config.BankChannelID) {
		return true, "", nil
	}
	return false, fmt.Sprintf("은행 명령어는 <#%d> 채널에서만 사용할 수 있습니다.", *config.BankChannelID), nil
}

// HandleCommand routes a bank slash command to its handler
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to parse guild ID"), false)
		return
	}
	allowed, restriction, err := f.InBankChannel(context.Background(), guildID, i.ChannelID)
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "failed to load guild config"), false)
		return
	}
	if !allowed {
		common.RespondWithError(s, i, restriction)
		return
	}

	switch i.ApplicationCommandData().Name {
	case "통장개설":
		f.handleOpenAccount(s, i)
	case "잔액":
		f.handleBalance(s, i)
	case "입금":
		f.handleDeposit(s, i)
	case "출금":
		f.handleWithdraw(s, i)
	case "송금":
		f.handleTransfer(s, i)
	case "대출":
		f.handleTakeLoan(s, i)
	case "상환":
		f.handleRepayLoan(s, i)
	case "거래내역":
		f.handleHistory(s, i)
	}
}
