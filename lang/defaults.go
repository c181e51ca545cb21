package lang

var defaults = map[string]string{
	// redemption
	"redeem_usage":   "Usage: {prefix}redeem <key>",
	"redeem_invalid": "Invalid key.",
	"redeem_used":    "Key already used.",
	"redeem_failed":  "Redeem failed. Try again.",
	"redeem_success": "**Key activated!**\nReply **1** (Middleman mode) or **2** (Ticket mode) now.",
	"redeem_dm":      "**Key redeemed!**\n\n1. Reply **1** or **2** in the channel to pick your mode.\n2. Run **{prefix}setup** and answer the questions.\n3. Post a panel with **{prefix}panel** or **{prefix}indexpanel**.",
	"mode_reprompt":  "Reply **1** (Middleman) or **2** (Ticket) only.",
	"mode_mm_on":     "**Middleman mode activated!** Run **{prefix}setup** or **{prefix}mmsetup**.",
	"mode_ticket_on": "**Ticket mode activated!** Run **{prefix}setup**.",

	// setup wizard
	"setup_need_redeem": "Redeem a key first.",
	"setup_need_mode":   "Pick a mode first: reply **1** or **2** after redeeming.",
	"setup_mm_only":     "This setup is only for middleman mode.",
	"setup_started":     "**Setup started.** Answer each question. Type \"cancel\" to stop.",
	"setup_active":      "You already have a setup running here. Finish or cancel it first.",
	"setup_cancelled":   "Setup cancelled.",
	"setup_timeout":     "Setup timed out.",
	"setup_invalid":     "Invalid input — setup aborted. Run it again to restart.",
	"setup_complete":    "**Setup complete!** Post a panel with the panel commands.",
	"setup_save_failed": "Could not save that answer — setup aborted.",

	// tickets
	"ticket_not_configured": "No ticket category configured. Run the setup first.",
	"ticket_create_failed":  "Failed to create the ticket channel: {error}",
	"ticket_created":        "Ticket created: <#{channel}>",
	"ticket_not_channel":    "This is not a ticket channel.",
	"ticket_claimed":        "<@{actor}> claimed this ticket.",
	"ticket_already_claimed": "This ticket is already claimed.",
	"ticket_not_staff":      "You need a staff role to do that.",
	"ticket_not_claimant":   "Only the current claimant can do that.",
	"ticket_unclaimed":      "<@{actor}> released this ticket.",
	"ticket_transferred":    "Claim transferred to <@{user}>.",
	"ticket_closing":        "Closing ticket...",
	"ticket_close_failed":   "Close finished with an error: {error}",
	"ticket_user_added":     "Added <@{user}> to this ticket.",
	"ticket_timeout_note":   "<@{user}> was timed out for 1 hour.",
	"ticket_transfer_usage": "Mention the staff member to transfer the claim to.",
	"ticket_add_usage":      "Mention the user to add to this ticket.",
	"ticket_close_confirm":  "Close this ticket? The channel will be archived and deleted.",
	"ticket_close_cancelled": "Close cancelled.",
	"ticket_log_empty":      "No recorded events for this ticket.",

	// recruitment / info panels
	"recruit_role_unset":   "Recruit role is not configured.",
	"recruit_join_failed":  "Could not add the recruit role.",
	"recruit_joined":       "<@{user}> joined the team!",
	"recruit_already":      "<@{user}> is already on the team.",
	"recruit_declined":     "<@{user}> is not interested.",
	"recruit_welcome":      "<@{user}> just joined the team!\n\nWelcome — read this channel carefully.\n\n**Verification:**\n1. Open {link}\n2. Follow the instructions to verify your account.\n\nPing a staff member if you have questions.",
	"mm_understood":        "<@{user}> understood the middleman service.",
	"mm_confused":          "<@{user}> didn't understand the middleman service — a staff member can help.",

	// vouches / afk
	"vouch_usage":       "Mention the user you want to vouch for.",
	"vouch_self":        "You cannot vouch for yourself.",
	"vouch_added":       "<@{user}> now has **{count}** vouch(es).",
	"vouch_count":       "<@{user}> has **{count}** vouch(es).",
	"afk_set":           "You are now AFK: {reason}",
	"afk_back":          "Welcome back, <@{user}>! AFK cleared.",
	"afk_notice":        "**That user is AFK.**\n**Reason:** {reason}\n**Since:** {minutes} minute(s) ago\n(Ping removed)",
	"afk_default_reason": "no reason given",
}
